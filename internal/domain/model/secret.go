package model

import "strings"

// SecretType classifies a monitored secret so reports and notifications can
// label findings without exposing the value itself.
type SecretType string

const (
	SecretTypeAliyunAK         SecretType = "aliyun_ak"
	SecretTypeAliyunSK         SecretType = "aliyun_sk"
	SecretTypeHuaweiCloudAK    SecretType = "huaweicloud_ak"
	SecretTypeHuaweiCloudSK    SecretType = "huaweicloud_sk"
	SecretTypeAuthingApp       SecretType = "authing_app"
	SecretTypeCloudAK          SecretType = "cloud_ak"
	SecretTypeAWSAccessKey     SecretType = "aws_access_key"
	SecretTypeAWSSecretKey     SecretType = "aws_secret_key"
	SecretTypeTencentSecretID  SecretType = "tencent_secret_id"
	SecretTypeTencentSecretKey SecretType = "tencent_secret_key"
	SecretTypeAzureKey         SecretType = "azure_key"
	SecretTypeGCPKey           SecretType = "gcp_key"
	SecretTypeAPIKey           SecretType = "api_key"
	SecretTypeToken            SecretType = "token"
	SecretTypePassword         SecretType = "password"
	SecretTypePrivateKey       SecretType = "private_key"
	SecretTypeCertificate      SecretType = "certificate"
	SecretTypeCustom           SecretType = "custom"
)

var secretTypeNames = map[SecretType]string{
	SecretTypeAliyunAK:         "Alibaba Cloud AccessKey ID",
	SecretTypeAliyunSK:         "Alibaba Cloud AccessKey Secret",
	SecretTypeHuaweiCloudAK:    "Huawei Cloud Access Key",
	SecretTypeHuaweiCloudSK:    "Huawei Cloud Secret Key",
	SecretTypeAuthingApp:       "Authing App Secret",
	SecretTypeCloudAK:          "Cloud Access Key",
	SecretTypeAWSAccessKey:     "AWS Access Key ID",
	SecretTypeAWSSecretKey:     "AWS Secret Access Key",
	SecretTypeTencentSecretID:  "Tencent Cloud SecretId",
	SecretTypeTencentSecretKey: "Tencent Cloud SecretKey",
	SecretTypeAzureKey:         "Azure Key",
	SecretTypeGCPKey:           "Google Cloud Key",
	SecretTypeAPIKey:           "API Key",
	SecretTypeToken:            "Access Token",
	SecretTypePassword:         "Password",
	SecretTypePrivateKey:       "Private Key",
	SecretTypeCertificate:      "Certificate",
	SecretTypeCustom:           "Custom Secret",
}

// KnownSecretType reports whether s is one of the recognized type labels.
func KnownSecretType(s string) bool {
	_, ok := secretTypeNames[SecretType(s)]
	return ok
}

// DisplayName returns a human-readable label for the secret type. Unknown
// types fall back to the raw string so nothing renders blank.
func (t SecretType) DisplayName() string {
	if name, ok := secretTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// SecretItem is one monitored secret: the verbatim value to search for,
// its type, and an operator note identifying where the value belongs.
type SecretItem struct {
	Type  SecretType
	Value string
	Note  string
}

// MaskedValue returns the value with its middle hidden. Only a short prefix
// (and suffix, when the value is long enough) survives; the mask never
// reveals more than the first and last six characters.
func (s SecretItem) MaskedValue() string {
	return MaskValue(s.Value)
}

// MaskValue hides the middle of a sensitive string. Values of six characters
// or fewer are fully masked; up to twelve characters keep only the prefix.
func MaskValue(value string) string {
	const visible = 6
	switch {
	case len(value) <= visible:
		return strings.Repeat("*", len(value))
	case len(value) <= visible*2:
		return value[:visible] + "******"
	default:
		return value[:visible] + "******" + value[len(value)-visible:]
	}
}
