package errors

import "net/http"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	Status   int
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (E100-E119)
	// ============================================

	"E101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No thbase.json, thbase.yaml or thbase.yml was found.",
		Status:   http.StatusInternalServerError,
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file could not be read or parsed.",
		Status:   http.StatusInternalServerError,
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range or unsupported.",
		Status:   http.StatusInternalServerError,
	},

	// ============================================
	// CLI Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		Detail:   "A command-line argument could not be parsed.",
		Status:   http.StatusBadRequest,
	},
	"E121": {
		Category: CategoryCLI,
		Message:  "Config file already exists",
		Detail:   "Refusing to overwrite an existing configuration file.",
		Status:   http.StatusConflict,
	},

	// ============================================
	// Validation Errors (E200-E209)
	// ============================================

	"E201": {
		Category: CategoryValidation,
		Message:  "Link, TH, and Image are required",
		Detail:   "The link and th fields and the image file must all be present.",
		Status:   http.StatusBadRequest,
	},
	"E202": {
		Category: CategoryValidation,
		Message:  "TH must be an integer",
		Detail:   "The th field selects the category file and must be a whole number.",
		Status:   http.StatusBadRequest,
	},
	"E203": {
		Category: CategoryValidation,
		Message:  "Invalid base_type field",
		Detail:   "base_type must be a single value or a list of values.",
		Status:   http.StatusBadRequest,
	},
	"E204": {
		Category: CategoryValidation,
		Message:  "Malformed multipart form",
		Detail:   "The request body could not be parsed as multipart/form-data.",
		Status:   http.StatusBadRequest,
	},

	// ============================================
	// Upload Errors (E210-E219)
	// ============================================

	"E210": {
		Category: CategoryUpload,
		Message:  "Only image files (jpg, jpeg, png, gif, webp) are allowed",
		Detail:   "The file extension, declared type or content is not an accepted image format.",
		Status:   http.StatusBadRequest,
	},
	"E211": {
		Category: CategoryUpload,
		Message:  "File too large",
		Detail:   "The uploaded file exceeds the configured size limit.",
		Status:   http.StatusBadRequest,
	},

	// ============================================
	// Storage Errors (E300-E319)
	// ============================================

	"E301": {
		Category: CategoryStorage,
		Message:  "Failed to store image",
		Detail:   "The image store rejected or failed to persist the file.",
		Status:   http.StatusInternalServerError,
	},
	"E302": {
		Category: CategoryStorage,
		Message:  "Failed to append record",
		Detail:   "The category could not be read or rewritten.",
		Status:   http.StatusInternalServerError,
	},
	"E303": {
		Category: CategoryStorage,
		Message:  "Category not found",
		Detail:   "No records have been submitted for this th value.",
		Status:   http.StatusNotFound,
	},
	"E304": {
		Category: CategoryStorage,
		Message:  "Failed to load category",
		Detail:   "The category could not be read.",
		Status:   http.StatusInternalServerError,
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
