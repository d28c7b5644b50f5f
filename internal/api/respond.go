package api

import (
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/pageza/foodgram/backend/internal/log"
	"github.com/pageza/foodgram/backend/internal/service"
)

var (
	usernamePattern  = regexp.MustCompile(`^[\w.@+-]+$`)
	registerOnce     sync.Once
	validationLabels = map[string]string{
		"required": "this field is required",
		"email":    "enter a valid email address",
		"hexcolor": "enter a valid hex color",
		"username": "letters, digits and @/./+/-/_ only",
	}
)

// RegisterValidators reports binding errors under json field names and adds
// the username rule
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		}); err != nil {
			log.Log.WithError(err).Error("Failed to register username validator")
		}
	})
}

func describe(fe validator.FieldError) string {
	if msg, ok := validationLabels[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "min":
		return "ensure this field has at least " + fe.Param() + " characters"
	case "len":
		return "ensure this field has exactly " + fe.Param() + " characters"
	}
	return "invalid value"
}

// respondBindError answers a failed ShouldBindJSON
func respondBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string][]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = append(details[fe.Field()], describe(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": details})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": "invalid request body"})
}

// respondFieldError answers with a single field problem
func respondFieldError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{field: []string{message}}})
}

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFieldError(c, verr.Field, verr.Message)
	case errors.Is(err, service.ErrRelationMissing),
		errors.Is(err, service.ErrDuplicate),
		errors.Is(err, service.ErrSelfReference),
		errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"errors": err.Error()})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"errors": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"errors": err.Error()})
	default:
		log.Log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "Internal Server Error"})
	}
}
