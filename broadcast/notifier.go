package broadcast

import (
	"encoding/json"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/notify"
)

// TopicNotices is the topic connection notices are published on.
const TopicNotices = "notices"

// EventNotice is the event name carrying a JSON-encoded notify.Notice.
const EventNotice = "notice"

// EventExpired is the event name sent when a notice leaves the board without
// being dismissed. Its data is the JSON-encoded notice.
const EventExpired = "expired"

// NoticeNotifier publishes notices to the hub's notice subscribers.
type NoticeNotifier struct {
	hub *Hub
}

var _ notify.Notifier = (*NoticeNotifier)(nil)

// NewNoticeNotifier creates a notifier publishing on TopicNotices.
func NewNoticeNotifier(h *Hub) *NoticeNotifier {
	return &NoticeNotifier{hub: h}
}

// Notify implements notify.Notifier.
func (n *NoticeNotifier) Notify(notice notify.Notice) {
	n.publish(EventNotice, notice)
}

// Expired tells notice subscribers that notice has expired. It matches the
// signature expected by notify.Board.OnExpire.
func (n *NoticeNotifier) Expired(notice notify.Notice) {
	n.publish(EventExpired, notice)
}

func (n *NoticeNotifier) publish(event string, notice notify.Notice) {
	data, err := json.Marshal(notice)
	if err != nil {
		logger.Error("encoding notice", logger.ErrorFields("broadcast", err))
		return
	}
	n.hub.Publish(TopicNotices, Frame{Event: event, Data: data, ID: notice.ID})
}
