package cache

import "fmt"

// GET /api/jobs/{id}
// job:data:{id}
func JobDataKey(id int) string {
	return fmt.Sprintf("job:data:%d", id)
}

// GET /api/jobs
const JobsListKey = "jobs:list"

// GET /api/publishers
const PublishersListKey = "publishers:list"
