package main

import "github.com/stagehand/theater/pkg/theater"

// echoRole is a minimal stock role exposed by the bootstrap binary so
// that a freshly started theater has something castable to smoke-test
// against: its only scene hands params straight back as the gig's
// value.
type echoRole struct{}

func (echoRole) SceneTable() map[string]theater.SceneFactory {
	return map[string]theater.SceneFactory{
		"echo": theater.Func(func(_ theater.Role, params any, _ theater.Yield) (any, error) {
			return params, nil
		}),
	}
}

// builtinRoles maps the role names a CastRequest may name to the
// factories the api package is allowed to construct.
var builtinRoles = map[string]func(params any) theater.Role{
	"echo": func(params any) theater.Role { return echoRole{} },
}
