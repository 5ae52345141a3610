package middleware

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lsf-services/warehouse-system/pkg/errors"
)

var validateOnce sync.Once

// InitValidator registers the stock ledger's custom validation tags on Gin's
// binding engine so request structs can use them in binding tags
func InitValidator() {
	validateOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("item_code", validateItemCode)
		_ = v.RegisterValidation("warehouse_code", validateWarehouseCode)
		_ = v.RegisterValidation("movement_type", validateMovementType)
		_ = v.RegisterValidation("item_type", validateItemType)
		_ = v.RegisterValidation("actor", validateActor)
		_ = v.RegisterValidation("safe_string", validateSafeString)

		// Use JSON tag names in validation error messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			return name
		})
	})
}

// Custom validators

var (
	itemCodeRegex      = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,49}$`)
	warehouseCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,19}$`)
	actorRegex         = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._@-]{0,63}$`)
	safeStringRegex    = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,!?@#$%&*()+=:;'"<>\/\[\]{}|\\~\x60]+$`)
)

func validateItemCode(fl validator.FieldLevel) bool {
	return itemCodeRegex.MatchString(fl.Field().String())
}

func validateWarehouseCode(fl validator.FieldLevel) bool {
	return warehouseCodeRegex.MatchString(fl.Field().String())
}

func validateMovementType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	validTypes := map[string]bool{
		"RECEIPT":    true,
		"ISSUE":      true,
		"RESERVE":    true,
		"RELEASE":    true,
		"ADJUSTMENT": true,
	}
	return validTypes[value]
}

func validateItemType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "STOCK" || value == "ASSET"
}

func validateActor(fl validator.FieldLevel) bool {
	return actorRegex.MatchString(fl.Field().String())
}

func validateSafeString(fl validator.FieldLevel) bool {
	return safeStringRegex.MatchString(fl.Field().String())
}

// ValidationErrorFormatter formats validation errors into a map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			fields[field] = formatValidationError(e)
		}
	}

	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "item_code":
		return "must be a valid item code (uppercase alphanumeric with dashes, 3-50 characters)"
	case "warehouse_code":
		return "must be a valid warehouse code (uppercase alphanumeric with dashes, 3-20 characters)"
	case "movement_type":
		return "must be one of: RECEIPT, ISSUE, RESERVE, RELEASE, ADJUSTMENT"
	case "item_type":
		return "must be one of: STOCK, ASSET"
	case "actor":
		return "must be a valid actor identifier (up to 64 characters)"
	case "safe_string":
		return "contains invalid characters"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds request body and validates it
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields := ValidationErrorFormatter(validationErrors)
			return errors.ErrValidationWithFields("validation failed", fields)
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// BindQueryAndValidate binds query parameters and validates them
func BindQueryAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	if err := c.ShouldBindQuery(obj); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fields := ValidationErrorFormatter(validationErrors)
			return errors.ErrValidationWithFields("validation failed", fields)
		}
		return errors.ErrBadRequest("invalid query parameters: " + err.Error())
	}
	return nil
}

// SanitizeString removes potentially dangerous characters from a string
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Trim whitespace
	s = strings.TrimSpace(s)

	return s
}

// InputSanitizer middleware sanitizes string inputs
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Sanitize query parameters
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType middleware ensures proper content type for POST/PUT/PATCH
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "PATCH" {
			contentType := c.GetHeader("Content-Type")
			if contentType == "" || !strings.HasPrefix(contentType, "application/json") {
				// Allow empty body for some endpoints
				if c.Request.ContentLength > 0 {
					AbortWithAppError(c, &errors.AppError{
						Code:       "INVALID_CONTENT_TYPE",
						Message:    "Content-Type must be application/json",
						HTTPStatus: 415,
					})
					return
				}
			}
		}
		c.Next()
	}
}
