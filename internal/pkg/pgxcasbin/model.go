package pgxcasbin

import (
	"github.com/casbin/casbin/v3/model"
)

// RBACModel allows a subject (a role) on an object and action, where "*"
// matches any object or action.
const RBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// NewRBACModel parses RBACModel.
func NewRBACModel() (model.Model, error) {
	return model.NewModelFromString(RBACModel)
}
