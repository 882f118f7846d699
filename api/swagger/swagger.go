package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PDF Page API",
        "description": "Serves PDFs from a local folder, extracts single pages and records page-level access.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "System", "description": "Status and probes"},
        {"name": "PDF", "description": "Whole-file and single-page access"},
        {"name": "Admin", "description": "Access metadata inspection"}
    ],
    "paths": {
        "/": {
            "get": {
                "tags": ["System"],
                "summary": "Service status message",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MessageBody"}}
                }
            }
        },
        "/api/hello": {
            "get": {
                "tags": ["System"],
                "summary": "Greeting",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Service initializing", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/pdf": {
            "get": {
                "tags": ["PDF"],
                "summary": "Fetch a whole PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "filename", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF bytes, inline disposition", "schema": {"type": "file"}},
                    "400": {"description": "Missing or invalid filename", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "PDF not found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/pdf/page": {
            "get": {
                "tags": ["PDF"],
                "summary": "Extract a single page as its own PDF",
                "description": "Records the access (page, client IP, time) against the file's metadata.",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "filename", "in": "query", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "required": true, "type": "integer", "minimum": 1}
                ],
                "responses": {
                    "200": {"description": "Single-page PDF named <base>-page-<N>.pdf", "schema": {"type": "file"}},
                    "400": {"description": "Missing parameter, invalid filename or invalid page number", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "PDF not found", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "413": {"description": "PDF too large to extract", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "429": {"description": "Too many requests", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "500": {"description": "Failed to extract page", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "503": {"description": "Service initializing", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/pdf-metadata": {
            "get": {
                "tags": ["Admin"],
                "summary": "List tracked PDFs",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer", "maximum": 200},
                    {"name": "offset", "in": "query", "type": "integer", "minimum": 0}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "503": {"description": "Service initializing", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/pdf-metadata/{filename}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Get one PDF's metadata and access log",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "filename", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/pdf-metadata/{filename}/access-log.csv": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export one PDF's access log as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "filename", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV with filename, page, ip, accessed_at columns", "schema": {"type": "file"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Service counters",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "MessageBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "AccessLogEntry": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "ip": {"type": "string"},
                "accessedAt": {"type": "string", "format": "date-time"}
            }
        },
        "PDFMetadata": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "pageCount": {"type": "integer"},
                "size": {"type": "integer"},
                "lastAccessed": {"type": "string", "format": "date-time"},
                "lastAccessedPage": {"type": "integer"},
                "lastAccessedIP": {"type": "string"},
                "accessCount": {"type": "integer"},
                "accessLog": {"type": "array", "items": {"$ref": "#/definitions/AccessLogEntry"}},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
