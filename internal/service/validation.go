package service

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gurkanbulca/neighborhelp/internal/geo"
	"github.com/gurkanbulca/neighborhelp/internal/models"
	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/auth"
)

// ValidationConfig holds validation limits
type ValidationConfig struct {
	MaxOverviewLength int
	MaxDetailLength   int
	MaxMessageLength  int
	MaxAddressLength  int
	MaxPhoneLength    int
	MaxReward         int64
	MaxRadiusMiles    float64
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxOverviewLength: 200,
		MaxDetailLength:   5000,
		MaxMessageLength:  1000,
		MaxAddressLength:  300,
		MaxPhoneLength:    30,
		MaxReward:         models.MaxReward,
		MaxRadiusMiles:    100,
	}
}

// taskForm normalizes and checks a create or edit form.
func (v *ValidationConfig) taskForm(form api.TaskForm) (api.TaskForm, error) {
	var errs []string

	form.Overview = strings.TrimSpace(form.Overview)
	form.Detail = strings.TrimSpace(form.Detail)

	if form.Overview == "" {
		errs = append(errs, "overview is required")
	} else if utf8.RuneCountInString(form.Overview) > v.MaxOverviewLength {
		errs = append(errs, fmt.Sprintf("overview too long (max %d characters)", v.MaxOverviewLength))
	}
	if form.Detail == "" {
		errs = append(errs, "detail is required")
	} else if utf8.RuneCountInString(form.Detail) > v.MaxDetailLength {
		errs = append(errs, fmt.Sprintf("detail too long (max %d characters)", v.MaxDetailLength))
	}

	category, known := models.NormalizeCategory(form.Category)
	switch {
	case category == "":
		errs = append(errs, "category is required")
	case !known:
		errs = append(errs, fmt.Sprintf("unknown category %q", category))
	}
	form.Category = category

	if form.Reward < 0 || form.Reward > v.MaxReward {
		errs = append(errs, fmt.Sprintf("reward must be between 0 and %d", v.MaxReward))
	}

	if len(errs) > 0 {
		return form, invalidf("%s", strings.Join(errs, "; "))
	}
	return form, nil
}

func (v *ValidationConfig) profile(p api.Profile) (api.Profile, error) {
	var errs []string

	p.Nickname = strings.TrimSpace(p.Nickname)
	p.Address = strings.TrimSpace(p.Address)
	p.Zipcode = strings.TrimSpace(p.Zipcode)
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
	p.Phone = strings.TrimSpace(p.Phone)

	if err := auth.ValidateNickname(p.Nickname); err != nil {
		errs = append(errs, err.Error())
	}
	if p.Address == "" {
		errs = append(errs, "address is required")
	} else if utf8.RuneCountInString(p.Address) > v.MaxAddressLength {
		errs = append(errs, fmt.Sprintf("address too long (max %d characters)", v.MaxAddressLength))
	}
	if p.Zipcode == "" {
		errs = append(errs, "zipcode is required")
	}
	if p.Country == "" {
		errs = append(errs, "country is required")
	}
	if len(p.Phone) > v.MaxPhoneLength {
		errs = append(errs, fmt.Sprintf("phone too long (max %d characters)", v.MaxPhoneLength))
	}
	if !finite(p.Lat, p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		errs = append(errs, "coordinates out of range")
	}

	if len(errs) > 0 {
		return p, invalidf("%s", strings.Join(errs, "; "))
	}
	return p, nil
}

func (v *ValidationConfig) message(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", invalidf("message is empty")
	}
	if utf8.RuneCountInString(body) > v.MaxMessageLength {
		return "", invalidf("message too long (max %d characters)", v.MaxMessageLength)
	}
	return body, nil
}

// area checks a search center and radius. A non-positive radius falls back
// to fallback miles.
func (v *ValidationConfig) area(lat, lng, miles, fallback float64) (geo.Point, float64, error) {
	if !finite(lat, lng, miles) {
		return geo.Point{}, 0, invalidf("coordinates and radius must be finite numbers")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return geo.Point{}, 0, invalidf("coordinates out of range")
	}
	if miles <= 0 {
		miles = fallback
	}
	if miles > v.MaxRadiusMiles {
		return geo.Point{}, 0, invalidf("radius must not exceed %g miles", v.MaxRadiusMiles)
	}
	return geo.Point{Lat: lat, Lng: lng}, miles, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (v *ValidationConfig) adminTask(form api.AdminTaskForm) (api.AdminTaskForm, error) {
	var errs []string

	form.Owner = strings.TrimSpace(form.Owner)
	form.Detail = strings.TrimSpace(form.Detail)
	form.Date = strings.TrimSpace(form.Date)
	form.Time = strings.TrimSpace(form.Time)

	if form.Owner == "" {
		errs = append(errs, "owner is required")
	}
	if form.Detail == "" {
		errs = append(errs, "detail is required")
	} else if utf8.RuneCountInString(form.Detail) > v.MaxDetailLength {
		errs = append(errs, fmt.Sprintf("detail too long (max %d characters)", v.MaxDetailLength))
	}
	if _, err := time.Parse("2006-01-02", form.Date); err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", form.Time); err != nil {
		errs = append(errs, "time must be HH:MM")
	}

	if len(errs) > 0 {
		return form, invalidf("%s", strings.Join(errs, "; "))
	}
	return form, nil
}
