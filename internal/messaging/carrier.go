package messaging

import "github.com/segmentio/kafka-go"

// Carrier adapts kafka message headers to the OTel TextMapCarrier interface
// so trace context survives the checkout → receipt worker hop.
type Carrier struct {
	msg *kafka.Message
}

func NewCarrier(msg *kafka.Message) *Carrier {
	return &Carrier{msg: msg}
}

func (c *Carrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *Carrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{
		Key:   key,
		Value: []byte(value),
	})
}

func (c *Carrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}
