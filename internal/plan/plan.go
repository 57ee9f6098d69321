package plan

import "formcraft/internal/model"

// Free plan limits
const (
	FreeMaxForms       = 3
	FreeMaxSubmissions = 100
)

// Capabilities describes what the owner's plan allows. A zero limit means
// unlimited.
type Capabilities struct {
	MaxForms           int
	MaxSubmissions     int
	CustomThemes       bool
	Expiration         bool
	Captcha            bool
	Redirect           bool
	EmailNotifications bool
	RequireEmail       bool
}

// For returns the capability set for a plan. Unknown plan values get the free
// tier.
func For(p model.PlanType) Capabilities {
	if p == model.PlanPro {
		return Capabilities{
			CustomThemes:       true,
			Expiration:         true,
			Captcha:            true,
			Redirect:           true,
			EmailNotifications: true,
			RequireEmail:       true,
		}
	}
	return Capabilities{
		MaxForms:       FreeMaxForms,
		MaxSubmissions: FreeMaxSubmissions,
	}
}

// baseThemes are available on every plan.
var baseThemes = map[string]bool{
	"light":  true,
	"dark":   true,
	"system": true,
}

// EffectiveSettings strips settings the owner's plan does not allow. Gating
// happens here, at the point of use: the stored document keeps every setting,
// so a Pro owner who downgrades loses nothing but the effect.
func EffectiveSettings(s model.FormSettings, caps Capabilities) model.FormSettings {
	if !caps.CustomThemes && !baseThemes[s.Theme] {
		s.Theme = "light"
	}
	if !caps.Captcha {
		s.EnableCaptcha = false
	}
	if !caps.Redirect {
		s.EnableRedirect = false
		s.RedirectURL = ""
	}
	if !caps.EmailNotifications {
		s.EnableEmailNotifications = false
		s.NotificationEmail = ""
	}
	if !caps.RequireEmail {
		s.RequireEmail = false
	}
	return s
}

// FormLimitReached reports whether the owner may create another form.
func (c Capabilities) FormLimitReached(owned int) bool {
	return c.MaxForms > 0 && owned >= c.MaxForms
}

// SubmissionLimitReached reports whether a form has hit its submission cap.
func (c Capabilities) SubmissionLimitReached(submissions int64) bool {
	return c.MaxSubmissions > 0 && submissions >= int64(c.MaxSubmissions)
}
