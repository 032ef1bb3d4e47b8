package client

import "strings"

// Voice is a synthesizer voice.
type Voice struct {
	Name string
	Lang string
}

// British reports whether the voice speaks a UK variant of English.
func (v Voice) British() bool {
	return strings.Contains(v.Lang, "GB") || strings.Contains(v.Lang, "UK")
}

// soothingNames is searched in order against lowercased voice names.
var soothingNames = []string{
	"zira",
	"hazel",
	"susan",
	"karen",
	"samantha",
	"victoria",
	"female",
	"uk english female",
	"en-gb",
}

var harshNames = []string{"male", "david", "mark", "richard", "james"}

// PickSoothingVoice chooses the calmest voice available. It returns false
// only when voices is empty.
func PickSoothingVoice(voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	for _, want := range soothingNames {
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), want) {
				return v, true
			}
		}
	}

	var english []Voice
	for _, v := range voices {
		if strings.HasPrefix(v.Lang, "en") && !containsAny(strings.ToLower(v.Name), harshNames) {
			english = append(english, v)
		}
	}
	if len(english) > 0 {
		for _, v := range english {
			if v.British() {
				return v, true
			}
		}
		return english[0], true
	}

	for _, v := range voices {
		if strings.HasPrefix(v.Lang, "en") {
			return v, true
		}
	}
	return voices[0], true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
