package utils

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	countryOnce   sync.Once
	countryByName map[string]string
)

// 上游数据中常见的非标准国家写法
var countryAliases = map[string]string{
	"usa":                      "US",
	"united states of america": "US",
	"uk":                       "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"viet nam":                 "VN",
	"south korea":              "KR",
	"korea, republic of":       "KR",
	"russia":                   "RU",
	"russian federation":       "RU",
	"czech republic":           "CZ",
	"turkey":                   "TR",
	"holland":                  "NL",
	"uae":                      "AE",
	"ivory coast":              "CI",
}

func buildCountryIndex() {
	countryByName = make(map[string]string, 300)
	namer := display.English.Regions()
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			region, err := language.ParseRegion(code)
			if err != nil || !region.IsCountry() {
				continue
			}
			name := namer.Name(region)
			if name == "" {
				continue
			}
			countryByName[strings.ToLower(name)] = region.String()
		}
	}
	for alias, code := range countryAliases {
		countryByName[alias] = code
	}
}

// CountryToISO 将国家英文名或 ISO 码转换为 ISO 3166-1 alpha-2，无法识别时返回空串
func CountryToISO(country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return ""
	}
	countryOnce.Do(buildCountryIndex)

	if code, ok := countryByName[strings.ToLower(country)]; ok {
		return code
	}
	if len(country) == 2 || len(country) == 3 {
		if region, err := language.ParseRegion(strings.ToUpper(country)); err == nil && region.IsCountry() {
			return region.String()
		}
	}
	return ""
}

// ISOToFlag 将 alpha-2 国家码转换为国旗 emoji
func ISOToFlag(iso string) string {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	if len(iso) != 2 {
		return ""
	}
	flag := make([]rune, 0, 2)
	for _, c := range iso {
		if c < 'A' || c > 'Z' {
			return ""
		}
		flag = append(flag, 0x1F1E6+(c-'A'))
	}
	return string(flag)
}

// Capitalize 首字母大写
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
