package profile

import _ "embed"

//go:embed profiles/samsung.yaml
var samsungYAML []byte

//go:embed profiles/xiaomi.yaml
var xiaomiYAML []byte

//go:embed profiles/huawei.yaml
var huaweiYAML []byte

//go:embed profiles/de.yaml
var deYAML []byte

//go:embed profiles/es.yaml
var esYAML []byte

//go:embed profiles/fr.yaml
var frYAML []byte

// builtinProfiles maps profile names to their embedded YAML content.
var builtinProfiles = map[string][]byte{
	"samsung": samsungYAML,
	"xiaomi":  xiaomiYAML,
	"huawei":  huaweiYAML,
	"de":      deYAML,
	"es":      esYAML,
	"fr":      frYAML,
}
