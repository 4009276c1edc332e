package locale

import "sort"

// Default is used whenever no supported language was chosen.
const Default = "en-US"

type Language struct {
	ShortName string
	FullName  string
}

var Supported = map[string]Language{
	"en-US": {
		ShortName: "en-us",
		FullName:  "English USA",
	},
	"zh-CN": {
		ShortName: "zh-CN",
		FullName:  "中文",
	},
}

// Codes returns the sorted codes of all supported languages.
func Codes() []string {
	codes := make([]string, 0, len(Supported))
	for code := range Supported {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

func IsSupported(code string) bool {
	_, ok := Supported[code]
	return ok
}
