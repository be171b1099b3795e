package testutil

import (
	"fmt"

	"github.com/roach88/kiln/internal/container"
)

// Class names of the sample services.
const (
	ClassLogger           = "Logger"
	ClassTransport        = "Transport"
	ClassTransportFactory = "TransportFactory"
	ClassMailer           = "Mailer"
	ClassNewsletter       = "Newsletter"
	ClassRequest          = "Request"
)

// Logger collects log lines.
type Logger struct {
	Channel string
	Lines   []string
}

// Log records msg.
func (l *Logger) Log(msg string) {
	l.Lines = append(l.Lines, msg)
}

// Transport is the mail transport built by TransportFactory.
type Transport struct {
	DSN string
}

// TransportFactory builds transports for one scheme.
type TransportFactory struct {
	Scheme string
}

// Create returns a transport for host.
func (f *TransportFactory) Create(host string) *Transport {
	return &Transport{DSN: f.Scheme + "://" + host}
}

// Mailer sends mail through a transport.
type Mailer struct {
	Transport  string
	From       string
	Logger     *Logger
	Configured bool
}

// SetLogger injects the logger.
func (m *Mailer) SetLogger(l *Logger) {
	m.Logger = l
}

// Newsletter sends one mail per subscriber.
type Newsletter struct {
	Mailer      *Mailer
	Subscribers []string
}

// AddSubscriber registers an address.
func (n *Newsletter) AddSubscriber(address string) {
	n.Subscribers = append(n.Subscribers, address)
}

// Request is a request-scoped service set at runtime.
type Request struct {
	Path string
}

// ConfigureMailer is a configurator callable marking mailers.
func ConfigureMailer(svc any) error {
	m, ok := svc.(*Mailer)
	if !ok {
		return fmt.Errorf("ConfigureMailer: unexpected %T", svc)
	}
	m.Configured = true
	return nil
}

func stringArg(args []any, i int) string {
	if i >= len(args) || args[i] == nil {
		return ""
	}
	return fmt.Sprint(args[i])
}

func newMailer(args []any) (any, error) {
	m := &Mailer{}
	if len(args) > 0 {
		switch t := args[0].(type) {
		case *Transport:
			m.Transport = t.DSN
		case nil:
		default:
			m.Transport = fmt.Sprint(t)
		}
	}
	return m, nil
}

// Classes returns a registry of the sample services.
func Classes() *container.ClassRegistry {
	return container.NewClassRegistry().
		Register(ClassLogger, container.Class{
			New: func(args []any) (any, error) { return &Logger{Channel: stringArg(args, 0)}, nil },
		}).
		Register(ClassTransport, container.Class{
			New: func(args []any) (any, error) { return &Transport{DSN: stringArg(args, 0)}, nil },
		}).
		Register(ClassTransportFactory, container.Class{
			New: func(args []any) (any, error) { return &TransportFactory{Scheme: stringArg(args, 0)}, nil },
		}).
		Register(ClassMailer, container.Class{
			New: newMailer,
			Static: map[string]container.Constructor{
				"fromTransport": newMailer,
			},
		}).
		Register(ClassNewsletter, container.Class{
			New: func(args []any) (any, error) {
				n := &Newsletter{}
				if len(args) > 0 && args[0] != nil {
					m, ok := args[0].(*Mailer)
					if !ok {
						return nil, fmt.Errorf("newsletter needs a *Mailer, got %T", args[0])
					}
					n.Mailer = m
				}
				return n, nil
			},
		}).
		Register(ClassRequest, container.Class{
			New: func(args []any) (any, error) { return &Request{Path: stringArg(args, 0)}, nil },
		})
}
