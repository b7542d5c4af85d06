package lending

import "github.com/rs/zerolog"

// Option ajusta dependencias opcionales de los casos de uso.
type Option func(*options)

type options struct {
	clock     Clock
	codes     CodeGenerator
	publisher ActivityPublisher
	log       zerolog.Logger
}

func buildOptions(opts []Option) options {
	o := options{
		clock: realClock{},
		codes: ULIDCodeGenerator{Prefix: "PJM"},
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock reemplaza el reloj (tests).
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithCodeGenerator reemplaza el generador de códigos de préstamo.
func WithCodeGenerator(g CodeGenerator) Option { return func(o *options) { o.codes = g } }

// WithPublisher difunde la bitácora tras cada commit.
func WithPublisher(p ActivityPublisher) Option { return func(o *options) { o.publisher = p } }

// WithLogger logger estructurado para transiciones y fallos.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }
