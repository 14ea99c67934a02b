package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// sharePathPattern matches the path part of a canonical video share URL:
// /@user/video/1234567890 or the short-link forms /v/ and /t/.
var sharePathPattern = regexp.MustCompile(`^/(@[\w.-]+/video/\d+|v/\d+|t/[\w-]+)/?$`)

// shortLinkPattern matches the bare token path used by redirect hosts.
var shortLinkPattern = regexp.MustCompile(`^/[\w-]+/?$`)

var allowedHosts = []string{
	"tiktok.com",
	"www.tiktok.com",
	"vm.tiktok.com",
	"vt.tiktok.com",
	"m.tiktok.com",
}

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("share_url", validateShareURL)
}

// ValidateShareURL checks that a URL points at the supported platform and
// matches its share-link pattern. The resolver proxy rejects anything else
// before making an upstream call.
func ValidateShareURL(raw string) error {
	if err := validate.Var(raw, "required,share_url"); err != nil {
		return fmt.Errorf("invalid share URL %q: %w", raw, err)
	}
	return nil
}

func validateShareURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	allowed := false
	for _, h := range allowedHosts {
		if host == h {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	// Short-link hosts redirect from a bare token path.
	if host == "vm.tiktok.com" || host == "vt.tiktok.com" {
		return shortLinkPattern.MatchString(u.Path)
	}

	return sharePathPattern.MatchString(u.Path)
}
