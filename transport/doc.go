// Package transport defines the connection provider used by streamchannel and
// an HTTP implementation speaking text/event-stream.
//
// # Configuration
//
//	transport:
//	  timeout: "30s"
//	  max_event_size: 1048576
//	  headers:
//	    X-Client: "streamwatch"
//	  auth:
//	    type: "bearer"
//	    token: "${STREAM_TOKEN}"
//	  tls:
//	    ca_file: "/etc/ssl/ca.pem"
//
// # Usage
//
//	p, err := transport.NewHTTPProvider(cfg)
//	conn := p.Open(url, transport.Options{
//	    WithCredentials: true,
//	    OnOpen:  func() { ... },
//	    OnError: func(err error) { ... },
//	})
//	conn.AddEventListener("update", func(ev transport.Event) { ... })
package transport
