package dto

// FileRequest selects a whole PDF.
type FileRequest struct {
	Filename string `form:"filename" validate:"required,pdf_filename"`
}

// PageRequest selects one page of a PDF. Page stays a string so that unparsable input is
// reported with the same message as a missing parameter.
type PageRequest struct {
	Filename string `form:"filename" validate:"required,pdf_filename"`
	Page     string `form:"page" validate:"required"`
}

// MetadataListRequest pages through tracked files.
type MetadataListRequest struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}

// MetadataListResponse is returned by the admin listing route.
type MetadataListResponse struct {
	Items  interface{} `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// IssueTokenRequest describes an admin token to mint from the CLI.
type IssueTokenRequest struct {
	Subject string `validate:"required,max=128"`
}
