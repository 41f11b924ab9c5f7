package reduce

import "regexp"

// SameSymbol decides whether a candidate occurrence names the same symbol
// as the origin. Bare and module-qualified spellings of one name accept
// each other in both directions, so a reference written `init` inside
// MODULE audio and one written `audio.init` outside both survive.
func SameSymbol(candLabel, candModule, origLabel, origModule string) bool {
	return candLabel == origLabel ||
		candModule == origModule ||
		candModule == origLabel ||
		candLabel == origModule
}

// SameSymbolLoose is the fuzzy variant: the origin's label and moduleLabel
// arrive as compiled fuzzy matchers and are tested against the candidate's
// two spellings the same four ways.
func SameSymbolLoose(origLabel, origModule *regexp.Regexp, candLabel, candModule string) bool {
	return origLabel.MatchString(candLabel) ||
		origModule.MatchString(candModule) ||
		origModule.MatchString(candLabel) ||
		origLabel.MatchString(candModule)
}
