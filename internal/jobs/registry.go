package jobs

import "github.com/amankumarsingh77/media-convert-server/internal/models"

// Registry owns all job entities. Reads return snapshots; mutation happens
// only through the atomic Update.
type Registry interface {
	Create(sourceURL string, metadata *models.Metadata) *models.Job
	Get(id string) (*models.Job, error)
	Update(id string, mutate func(job *models.Job)) (*models.Job, error)
	Delete(id string)
	List() []*models.Job
	Count() int
}
