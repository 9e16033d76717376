// Package identity resolves the AWS account the build is running as.
//
// Runners outside CodeBuild have no build ARN to read the account from, so the
// registry host falls back to STS GetCallerIdentity. Results are cached per region
// for the life of the process.
package identity
