package container

import (
	"errors"
	"fmt"
)

type logger struct {
	Name  string
	Lines []string
}

func (l *logger) Log(msg string) {
	l.Lines = append(l.Lines, msg)
}

type mailer struct {
	Transport  string
	Logger     *logger
	Debug      bool
	Port       int
	Configured int
}

func (m *mailer) SetLogger(l *logger) {
	m.Logger = l
}

func (m *mailer) SetPort(port int) error {
	if port <= 0 {
		return errors.New("port must be positive")
	}
	m.Port = port
	return nil
}

type mailerFactory struct {
	Prefix string
}

func (f *mailerFactory) Create(transport string) *mailer {
	return &mailer{Transport: f.Prefix + transport}
}

type configurator struct {
	Calls int
}

func (c *configurator) Configure(m *mailer) {
	m.Configured++
	c.Calls++
}

func stringArg(args []any, i int) string {
	if i >= len(args) || args[i] == nil {
		return ""
	}
	return fmt.Sprint(args[i])
}

func testClasses() *ClassRegistry {
	return NewClassRegistry().
		Register("Logger", Class{
			New: func(args []any) (any, error) { return &logger{Name: stringArg(args, 0)}, nil },
		}).
		Register("Mailer", Class{
			New: func(args []any) (any, error) { return &mailer{Transport: stringArg(args, 0)}, nil },
			Static: map[string]Constructor{
				"create": func(args []any) (any, error) {
					return &mailer{Transport: "static:" + stringArg(args, 0)}, nil
				},
				"configure": func(args []any) (any, error) {
					args[0].(*mailer).Configured += 10
					return nil, nil
				},
			},
			Methods: map[string]Method{
				"enableDebug": func(obj any, args []any) (any, error) {
					obj.(*mailer).Debug = true
					return nil, nil
				},
			},
		}).
		Register("MailerFactory", Class{
			New: func(args []any) (any, error) { return &mailerFactory{Prefix: stringArg(args, 0)}, nil },
		}).
		Register("Configurator", Class{
			New: func(args []any) (any, error) { return &configurator{}, nil },
		}).
		Register("Map", Class{
			New: func(args []any) (any, error) { return map[string]any{"args": args}, nil },
		})
}
