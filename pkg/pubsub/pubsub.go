package pubsub

const (
	PubSubLapsTopic        = "laps"
	PubSubRaceStartedTopic = "raceStarted"
)
