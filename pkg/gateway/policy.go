package gateway

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	policyassets "github.com/3leaps/godrives/internal/assets/policy"
)

// extensionPolicy holds the parsed extension policy document.
type extensionPolicy struct {
	Base64     []string `yaml:"base64_extensions"`
	Recognized []string `yaml:"recognized_extensions"`
}

// policy is loaded once from the embedded document at package init.
var policy = mustLoadPolicy(policyassets.Extensions)

type loadedPolicy struct {
	base64     map[string]struct{}
	recognized map[string]struct{}
}

func mustLoadPolicy(raw []byte) loadedPolicy {
	var doc extensionPolicy
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("policy: invalid embedded extension policy: %v", err))
	}
	loaded := loadedPolicy{
		base64:     make(map[string]struct{}, len(doc.Base64)),
		recognized: make(map[string]struct{}, len(doc.Recognized)),
	}
	for _, ext := range doc.Base64 {
		loaded.base64[strings.ToLower(ext)] = struct{}{}
	}
	for _, ext := range doc.Recognized {
		// The allow-list is matched case-sensitively so entries like .R
		// keep their meaning.
		loaded.recognized[ext] = struct{}{}
	}
	return loaded
}

// isBase64Path reports whether the object at p carries binary content that
// must travel over the API as base64.
func isBase64Path(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	_, ok := policy.base64[ext]
	return ok
}

// isRecognizedFile reports whether the final segment of p names a file the
// gateway recognizes. Paths without a dot, or with an extension outside the
// allow-list, are treated as directory names.
func isRecognizedFile(p string) bool {
	base := path.Base(p)
	if !strings.Contains(base, ".") {
		return false
	}
	_, ok := policy.recognized[path.Ext(base)]
	return ok
}
