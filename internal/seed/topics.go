package seed

import (
	"editorial/internal/models"

	"gorm.io/gorm"
)

// BuiltInTopics are the topics every fresh installation starts with.
var BuiltInTopics = []string{
	"Announcements",
	"Culture",
	"Design",
	"Engineering",
	"Interviews",
	"Photography",
	"Reviews",
	"Travel",
}

// Topics inserts the named topics, leaving existing ones untouched, and
// returns all of them.
func Topics(db *gorm.DB, names []string) ([]models.Topic, error) {
	topics := make([]models.Topic, 0, len(names))
	for _, name := range names {
		var topic models.Topic
		err := db.Where(models.Topic{Name: name}).
			Attrs(models.Topic{Slug: models.Slugify(name)}).
			FirstOrCreate(&topic).Error
		if err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}
	return topics, nil
}
