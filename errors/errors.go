// Package errors holds the sentinel errors shared by every mads package and
// the helpers that enrich them with hints, context and exit codes.
package errors

import "github.com/cockroachdb/errors"

// Runner detection.
var (
	ErrRunnerNotDetected    = errors.New("unable to detect runner")
	ErrDuplicateCatchAll    = errors.New("a catch-all runner variant is already registered")
	ErrMissingRunnerEnv     = errors.New("required runner environment variables are missing")
	ErrMalformedARN         = errors.New("malformed build ARN")
	ErrUnsupportedRunner    = errors.New("operation is not supported on this runner")
	ErrInvalidRunnerVariant = errors.New("runner variant is missing a detect or constructor function")
)

// Configuration and logging.
var (
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrLoadConfig      = errors.New("failed to load mads configuration")
	ErrOpenLogFile     = errors.New("failed to open log file")
)

// Shell execution.
var (
	ErrCommandFailed = errors.New("command failed")
	ErrParseCommand  = errors.New("failed to parse command")
)

// Docker and ECR.
var (
	ErrDockerUnavailable     = errors.New("docker daemon is not available")
	ErrImageNotFound         = errors.New("image could not be pulled")
	ErrImageRetag            = errors.New("failed to retag image")
	ErrInvalidImageReference = errors.New("invalid image reference")
	ErrRegistryHostUnknown   = errors.New("unable to determine image registry host")
	ErrECRAuthFailed         = errors.New("failed to get ECR authorization token")
	ErrECRNoAuthData         = errors.New("no authorization data returned from ECR")
	ErrECRInvalidToken       = errors.New("invalid ECR authorization token format")
	ErrECRDescribeImages     = errors.New("failed to describe ECR images")
)

// AWS facades.
var (
	ErrLoadAWSConfig     = errors.New("failed to load AWS config")
	ErrAWSCallerIdentity = errors.New("failed to get AWS caller identity")
	ErrS3ListObjects     = errors.New("failed to list S3 objects")
	ErrS3GetObject       = errors.New("failed to get S3 object")
	ErrS3Presign         = errors.New("failed to presign S3 object")
	ErrSecretNotFound    = errors.New("failed to read secret value")
	ErrSESSend           = errors.New("failed to send email through SES")
)

// GitHub.
var (
	ErrMissingAppCredentials   = errors.New("missing GitHub app credentials")
	ErrParseAppSecret          = errors.New("failed to parse GitHub app secret")
	ErrParsePrivateKey         = errors.New("failed to parse GitHub app private key")
	ErrSignJWT                 = errors.New("failed to sign GitHub app JWT")
	ErrInstallationToken       = errors.New("failed to create GitHub installation token")
	ErrInstallCredentials      = errors.New("failed to install git credentials")
	ErrInvalidCheckState       = errors.New("invalid commit status state")
	ErrStatusTargetUnavailable = errors.New("unable to determine commit status target")
	ErrCreateCommitStatus      = errors.New("failed to create commit status")
	ErrFetchRelease            = errors.New("failed to fetch GitHub releases")
	ErrNoRelease               = errors.New("repository has no matching release")
)

// Kubernetes.
var ErrKubeRollout = errors.New("failed to restart deployment")

// Email.
var (
	ErrEmailNoRecipients = errors.New("email has no recipients")
	ErrEmailAttachment   = errors.New("failed to attach file to email")
	ErrEmailBuild        = errors.New("failed to build email")
)

// Query and misc CLI.
var (
	ErrQueryNoValue   = errors.New("query did not match a value")
	ErrQueryPath      = errors.New("invalid query path")
	ErrReadInput      = errors.New("failed to read input")
	ErrParseYAML      = errors.New("failed to parse YAML")
	ErrWriteOutput    = errors.New("failed to write step output")
	ErrSwapSetup      = errors.New("failed to enable swap")
	ErrPackageInstall = errors.New("failed to install package")
)
