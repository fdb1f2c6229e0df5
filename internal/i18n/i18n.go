package i18n

import "strings"

const DefaultLanguage = "en"

// Message keys emitted by the services. Handlers resolve them to localised
// text with a Bundle, the services themselves never carry display text.
const (
	UsernameNull                  = "username_null"
	UsernameSize                  = "username_size"
	EmailNull                     = "email_null"
	EmailInvalid                  = "email_invalid"
	EmailInUse                    = "email_inuse"
	PasswordNull                  = "password_null"
	PasswordSize                  = "password_size"
	PasswordPattern               = "password_pattern"
	UserCreated                   = "user_created"
	AccountActivationSuccessful   = "account_activation_successful"
	AccountActivationFailure      = "account_activation_failure"
	IncorrectCredentials          = "incorrect_credentials"
	InactiveAuthenticationFailure = "inactive_auth_failure"
	UnauthorizedUserUpdate        = "unauthorized_user_update"
	UserNotFound                  = "user_not_found"
	EmailFailure                  = "email_failure"
	ValidationFailure             = "validation_failure"
	UnexpectedError               = "unexpected_error"
)

var en = map[string]string{
	UsernameNull:                  "Username cannot be null",
	UsernameSize:                  "Must have min 4 and max 32 characters",
	EmailNull:                     "E-mail cannot be null",
	EmailInvalid:                  "E-mail is not valid",
	EmailInUse:                    "E-mail in use",
	PasswordNull:                  "Password cannot be null",
	PasswordSize:                  "Password must be at least 6 characters",
	PasswordPattern:               "Password must have at least 1 uppercase, 1 lowercase letter and 1 number",
	UserCreated:                   "User created",
	AccountActivationSuccessful:   "Account is activated",
	AccountActivationFailure:      "This account is either active or the token is invalid",
	IncorrectCredentials:          "Incorrect credentials",
	InactiveAuthenticationFailure: "Account is inactive",
	UnauthorizedUserUpdate:        "You are not authorized to update user",
	UserNotFound:                  "User not found",
	EmailFailure:                  "E-mail Failure",
	ValidationFailure:             "Validation Failure",
	UnexpectedError:               "Unexpected error occurred",
}

var np = map[string]string{
	UsernameNull:                  "प्रयोगकर्ता नाम खाली हुन सक्दैन",
	UsernameSize:                  "कम्तिमा ४ र बढीमा ३२ अक्षर हुनुपर्छ",
	EmailNull:                     "इमेल खाली हुन सक्दैन",
	EmailInvalid:                  "इमेल मान्य छैन",
	EmailInUse:                    "इमेल प्रयोगमा छ",
	PasswordNull:                  "पासवर्ड खाली हुन सक्दैन",
	PasswordSize:                  "पासवर्ड कम्तिमा ६ अक्षरको हुनुपर्छ",
	PasswordPattern:               "पासवर्डमा कम्तिमा १ ठूलो, १ सानो अक्षर र १ अंक हुनुपर्छ",
	UserCreated:                   "प्रयोगकर्ता सिर्जना गरियो",
	AccountActivationSuccessful:   "खाता सक्रिय गरिएको छ",
	AccountActivationFailure:      "यो खाता या त सक्रिय छ वा टोकन अमान्य छ",
	IncorrectCredentials:          "गलत प्रमाणहरू",
	InactiveAuthenticationFailure: "खाता निष्क्रिय छ",
	UnauthorizedUserUpdate:        "तपाईंलाई प्रयोगकर्ता अद्यावधिक गर्ने अनुमति छैन",
	UserNotFound:                  "प्रयोगकर्ता फेला परेन",
	EmailFailure:                  "इमेल पठाउन असफल",
	ValidationFailure:             "प्रमाणीकरण असफल",
	UnexpectedError:               "अनपेक्षित त्रुटि भयो",
}

// Bundle is an injected translation table. Handlers are handed one at
// construction so tests can pin a locale.
type Bundle struct {
	locales map[string]map[string]string
}

func NewBundle() *Bundle {
	return &Bundle{locales: map[string]map[string]string{
		"en": en,
		"np": np,
	}}
}

// Translate resolves a message key for a language tag. Unknown languages
// fall back to English, unknown keys come back verbatim.
func (b *Bundle) Translate(lang string, key string) string {
	messages, ok := b.locales[normalize(lang)]
	if !ok {
		messages = b.locales[DefaultLanguage]
	}
	if message, ok := messages[key]; ok {
		return message
	}
	return key
}

// normalize reduces an Accept-Language header to a bare language tag,
// e.g. "np-NP,np;q=0.9" becomes "np".
func normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.Index(lang, "-"); i >= 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}
