// Package constants provides a centralized location for the tunables and
// fixed values used throughout evidence-collector.
package constants

// PreviewColumnWidth caps a single cell in the dry-run table preview.
const PreviewColumnWidth = 40

// Tracker request constants
const (
	// UserAgent is sent on every tracker request. Some enterprise proxies
	// reject requests without a browser-like agent.
	UserAgent = "Mozilla/5.0 (X11; U; Linux i686) Gecko/20071127 Firefox/2.0.0.11"

	// SearchPageSize is the single bounded page requested from GitHub search.
	SearchPageSize = 100

	// JiraMaxResults bounds the single JQL search page.
	JiraMaxResults = 1000
)

// Rate limiting constants
const (
	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100
)

// Evidence document names
const (
	// UploadNameCSV is the filename announced for CSV uploads.
	UploadNameCSV = "evidence.csv"

	// UploadNameXLSX is the filename announced for spreadsheet uploads.
	UploadNameXLSX = "evidence.xlsx"

	// PullRequestFilePrefix prefixes the local per pull request CSV name.
	PullRequestFilePrefix = "pull_request-"

	// JiraFilePrefix prefixes the local Jira evidence file name.
	JiraFilePrefix = "JiraServerEvidence_"

	// JiraFileTimestamp formats the timestamp in local Jira file names.
	JiraFileTimestamp = "20060102150405"
)

// Jira fields requested from the search API, in column order.
var JiraFields = []string{
	"issuetype",
	"project",
	"summary",
	"assignee",
	"reporter",
	"status",
	"created",
	"resolutiondate",
}
