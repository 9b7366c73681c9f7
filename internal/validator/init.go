package validator

import (
	"errors"
	"net"
	"net/url"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("httpurl", isHTTPURL); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// isHTTPURL accepts absolute http and https URLs whose host is an IP,
// localhost, or a name with a top level domain.
func isHTTPURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return isTopLevelDomain(labels[len(labels)-1])
}

// isTopLevelDomain accepts alphabetic labels of two or more letters and
// punycode labels.
func isTopLevelDomain(label string) bool {
	if strings.HasPrefix(strings.ToLower(label), "xn--") {
		return len(label) > 4
	}
	if len([]rune(label)) < 2 {
		return false
	}
	for _, r := range label {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Messages maps the failures in err onto user facing messages, looked up in
// table by "field.tag". Unknown failures fall back to a generic message.
func Messages(err error, table map[string]string) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := table[fe.Field()+"."+fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, "Invalid value for "+fe.Field())
	}
	return msgs
}
