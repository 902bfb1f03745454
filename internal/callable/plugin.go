package callable

import "plugin"

type lookupFunc func(symbol string) (any, error)

type pluginOpener func(path string) (lookupFunc, error)

func openPlugin(path string) (lookupFunc, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return func(symbol string) (any, error) {
		return p.Lookup(symbol)
	}, nil
}
