package ports

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}

const (
	TopicProgressUpdated = "progress.updated"
	TopicCourseRescanned = "course.rescanned"
)
