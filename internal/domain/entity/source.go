package entity

import (
	"fmt"
	"strings"
)

// Source 数据来源
type Source string

const (
	SourceKompass   Source = "kompass"
	SourceLinkedIn  Source = "linkedin"
	SourceEuropages Source = "europages"
)

// Sources 全部支持的数据来源
var Sources = []Source{SourceKompass, SourceLinkedIn, SourceEuropages}

// ParseSource 解析数据来源，大小写不敏感
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.Valid() {
		return "", fmt.Errorf("unknown source %q", s)
	}
	return src, nil
}

// Valid 是否为支持的数据来源
func (s Source) Valid() bool {
	switch s {
	case SourceKompass, SourceLinkedIn, SourceEuropages:
		return true
	}
	return false
}

func (s Source) String() string {
	return string(s)
}
