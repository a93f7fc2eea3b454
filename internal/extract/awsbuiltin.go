package extract

import (
	"regexp"
	"strings"

	"github.com/nimbusforge/s3logforwarder/internal/rules"
)

// accountIDInKey matches the account-id path segment AWS writes into
// every AWSLogs/ key prefix (cloudtrail, vpcflowlogs, config, elb, ...).
var accountIDInKey = regexp.MustCompile(`AWSLogs/(\d{12})/`)

// builtinServiceTable maps the name of a non-CWL built-in AWS processing
// rule to the aws.service/log.source pair a match against it implies.
var builtinServiceTable = map[string]string{
	"cloudtrail":  "cloudtrail",
	"vpcflowlogs": "vpc",
	"elb":         "elasticloadbalancing",
	"s3access":    "s3",
	"waf":         "waf",
}

// eksLogStreamSources maps known EKS control-plane log-stream prefixes to
// the log.source value they identify.
var eksLogStreamSources = []struct {
	prefix string
	source string
}{
	{"kube-apiserver-audit-", "kube-apiserver-audit"},
	{"kube-apiserver-", "kube-apiserver"},
	{"kube-scheduler-", "kube-scheduler"},
	{"kube-controller-manager-", "kube-controller-manager"},
	{"cloud-controller-manager-", "cloud-controller-manager"},
	{"authenticator-", "authenticator"},
}

// deriveAWSBuiltins implements spec §4.4 step 6: CloudWatch-Logs-group
// parsing plus the built-in AWS-service inferences that don't need a
// grok/query extraction to seed them.
func deriveAWSBuiltins(acc map[string]any, rule *rules.ProcessingRule, key string) {
	if rule.SourceKind != rules.SourceAWS {
		return
	}

	if m := accountIDInKey.FindStringSubmatch(key); m != nil {
		if _, exists := acc["aws.account.id"]; !exists {
			acc["aws.account.id"] = m[1]
		}
	}

	if service, ok := builtinServiceTable[rule.Name]; ok {
		if _, exists := acc["aws.service"]; !exists {
			acc["aws.service"] = service
		}
		if _, exists := acc["log.source"]; !exists {
			acc["log.source"] = rule.Name
		}
	}

	logGroup, _ := acc["aws.log_group"].(string)
	logStream, _ := acc["aws.log_stream"].(string)
	if logGroup == "" || logStream == "" {
		return
	}

	segments := strings.Split(logGroup, "/")
	if len(segments) < 3 {
		return
	}
	service := segments[2]
	acc["aws.service"] = service

	switch service {
	case "eks":
		if len(segments) > 3 {
			acc["aws.resource.id"] = segments[3]
		}
		for _, s := range eksLogStreamSources {
			if strings.HasPrefix(logStream, s.prefix) {
				acc["log.source"] = s.source
				break
			}
		}
	case "lambda":
		if len(segments) > 3 {
			acc["aws.resource.id"] = segments[3]
		}
	}
}
