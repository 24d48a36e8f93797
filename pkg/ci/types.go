package ci

// Build statuses reported by the CI provider.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCancelled = "cancelled"
)

// Project identifies one CI project. Immutable once fetched.
type Project struct {
	ProjectID   int    `json:"projectId"`
	AccountName string `json:"accountName"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
}

// Build is one execution of a project at a specific version.
type Build struct {
	BuildID int    `json:"buildId"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Jobs    []Job  `json:"jobs"`
}

// Job is one execution unit owned by a build.
type Job struct {
	JobID            string `json:"jobId"`
	Status           string `json:"status"`
	TestsCount       int    `json:"testsCount"`
	PassedTestsCount int    `json:"passedTestsCount"`
	FailedTestsCount int    `json:"failedTestsCount"`
}

// Artifact is a file produced by a job.
type Artifact struct {
	FileName string `json:"fileName"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
}

// projectsResponse is the provider's project-list payload.
type projectsResponse []Project

// buildResponse is the provider's build-lookup payload.
type buildResponse struct {
	Project Project `json:"project"`
	Build   Build   `json:"build"`
}
