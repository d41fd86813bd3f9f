package validators

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"garuda/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, ok := ParseHHMM(fl.Field().String())
		return ok
	})
	return v
}

// Struct validates v and returns field -> message, or nil when valid.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", fe.Field())
	case "email":
		return "Invalid email!"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters!", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s!", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s!", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s!", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only!", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL!", fe.Field())
	case "excludesall":
		return fmt.Sprintf("%s contains invalid characters (%s)!", fe.Field(), fe.Param())
	case "hhmm":
		return fmt.Sprintf("%s must use HH:MM format!", fe.Field())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// ParseHHMM parses "HH:MM" into minutes since midnight.
func ParseHHMM(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// Body parses the JSON body into T, validates it, runs extra checks and stores
// the result in c.Locals(key).
func Body[T any](key string, extra func(*T, map[string]string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errs := Struct(req)
		if errs == nil {
			errs = map[string]string{}
		}
		if extra != nil {
			extra(req, errs)
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals(key, req)
		return c.Next()
	}
}

// Query parses the query string into T the same way Body does.
func Query[T any](key string, extra func(*T, map[string]string)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.QueryParser(req); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errs := Struct(req)
		if errs == nil {
			errs = map[string]string{}
		}
		if extra != nil {
			extra(req, errs)
		}
		if len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals(key, req)
		return c.Next()
	}
}

// ParamID validates a positive integer route param and stores it as uint in
// c.Locals(name).
func ParamID(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			raw := strings.TrimSpace(c.Params(name))
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, fmt.Sprintf("Invalid %s!", name), nil)
			}
			c.Locals(name, uint(id))
		}
		return c.Next()
	}
}

// ID reads an id stored by ParamID.
func ID(c *fiber.Ctx, name string) uint {
	id, _ := c.Locals(name).(uint)
	return id
}

// PageQuery is embedded by list queries.
type PageQuery struct {
	Page  int `query:"page" json:"page"`
	Limit int `query:"limit" json:"limit"`
}
