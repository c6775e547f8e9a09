package config

// EventSub is the configuration of the event subscription service.
type EventSub struct {
	// ChannelCapacity is the buffer depth of every subscriber channel.
	// A subscriber lagging behind the commit rate by more than this many
	// notifications starts losing them.
	ChannelCapacity int `yaml:"ChannelCapacity"`
}
