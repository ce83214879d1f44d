package server

import (
	"regexp"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/config"
)

// videoIDPattern is the YouTube video-id shape
// explicitly: an 11-char id drawn from the base64url alphabet.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func validateVideoID(id string) error {
	if !videoIDPattern.MatchString(id) {
		return apperr.New(apperr.KindInvalidVideoID, "video-id must be an 11-character id")
	}
	return nil
}

// StyleRequest is the style-selection portion shared by every
// generation endpoint's body: either a named preset or an inline
// custom style, never both.
type StyleRequest struct {
	StylePreset string        `json:"style-preset,omitempty"`
	CustomStyle *config.Style `json:"custom-style,omitempty"`
}

// resolveStyle picks the active style for a generation request: a
// custom style (validated for its three required fields) takes
// precedence over a named preset; absent both, a blank style with its
// defaults applied is returned.
func (s *Server) resolveStyle(req StyleRequest) (*config.Style, error) {
	if req.CustomStyle != nil {
		req.CustomStyle.SetDefaults()
		if err := req.CustomStyle.Validate(); err != nil {
			return nil, err
		}
		return req.CustomStyle, nil
	}
	if req.StylePreset != "" {
		return config.ResolvePreset(s.styles, req.StylePreset)
	}
	style := &config.Style{}
	style.SetDefaults()
	return style, nil
}

// resolveLimits layers a style's embedded override map (if any) and a
// request's explicit override map (if any) onto the server's default
// field-limits table. Request overrides win over style overrides.
func (s *Server) resolveLimits(style *config.Style, overrides map[config.LimitKey]int) (*config.FieldLimits, error) {
	limits := s.limits
	if style != nil && len(style.LimitOverrides) > 0 {
		merged, err := limits.WithOverrides(style.LimitOverrides)
		if err != nil {
			return nil, err
		}
		limits = merged
	}
	if len(overrides) > 0 {
		merged, err := limits.WithOverrides(overrides)
		if err != nil {
			return nil, err
		}
		limits = merged
	}
	return limits, nil
}
