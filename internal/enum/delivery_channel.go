package enum

type DeliveryChannel string

const (
	DeliveryChannelEmail   DeliveryChannel = "email"
	DeliveryChannelWebhook DeliveryChannel = "webhook"
)

func (t DeliveryChannel) String() string {
	return string(t)
}

// RequiresDownloadRef reports whether the channel delivers a reference to
// the artifact instead of the artifact itself.
func (t DeliveryChannel) RequiresDownloadRef() bool {
	return t == DeliveryChannelWebhook
}

func (t DeliveryChannel) IsValid() bool {
	switch t {
	case DeliveryChannelEmail, DeliveryChannelWebhook:
		return true
	}
	return false
}
