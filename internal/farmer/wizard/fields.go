package wizard

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

// Kind tags how a field is entered and validated.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindLongText:
		return "long-text"
	case KindChoice:
		return "choice"
	default:
		return "text"
	}
}

// Field describes one step of the wizard.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Choices  []string
	Required bool

	assign func(p *model.Profile, value string)
}

// Normalize case-folds a choice value. A Caser is stateful, so one is built per call.
func Normalize(value string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(value))
}

// Accepts reports whether value is allowed for a choice field and returns
// its stored (normalized) form. Non-choice fields accept anything.
func (f Field) Accepts(value string) (string, bool) {
	if f.Kind != KindChoice {
		return value, true
	}
	v := Normalize(value)
	if v == "" {
		return "", true
	}
	for _, c := range f.Choices {
		if Normalize(c) == v {
			return v, true
		}
	}
	return "", false
}

func text(name, label string, assign func(*model.Profile, string)) Field {
	return Field{Name: name, Label: label, Kind: KindText, Required: true, assign: assign}
}

func longText(name, label string, assign func(*model.Profile, string)) Field {
	return Field{Name: name, Label: label, Kind: KindLongText, Required: true, assign: assign}
}

func choice(name, label string, choices []string, assign func(*model.Profile, string)) Field {
	return Field{Name: name, Label: label, Kind: KindChoice, Choices: choices, Required: true, assign: assign}
}

// FarmerFields returns the profile questionnaire in the order it is asked.
func FarmerFields() []Field {
	return []Field{
		text("name", "Name", func(p *model.Profile, v string) { p.Name = v }),
		text("Location", "Location", func(p *model.Profile, v string) { p.Location = v }),
		text("Crops Grown", "Crops Grown", func(p *model.Profile, v string) { p.CropsGrown = v }),
		text("Soil Type", "Soil Type", func(p *model.Profile, v string) { p.SoilType = v }),
		choice("IrrigationSystem", "Irrigation System",
			[]string{"Drip", "Sprinkler", "Surface", "Manual"},
			func(p *model.Profile, v string) { p.Irrigation = v }),
		text("Farm Type", "Farm Size", func(p *model.Profile, v string) { p.FarmSize = v }),
		longText("postContent", "Previous symptoms or diseases", func(p *model.Profile, v string) { p.PriorSymptoms = v }),
		choice("OrganicFarming", "Organic Farming",
			[]string{"Fully Organic", "Partial Organic", "Not Organic"},
			func(p *model.Profile, v string) { p.FarmingMethod = v }),
		text("Extra Farm Type", "Extra Farm Type", func(p *model.Profile, v string) { p.ExtraFarmType = v }),
		text("cweather", "Recent Weather", func(p *model.Profile, v string) { p.RecentWeather = v }),
		longText("anyimp", "Any other important information", func(p *model.Profile, v string) { p.Notes = v }),
	}
}
