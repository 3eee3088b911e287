package guard

import "learninghouse/console/internal/models"

// Routes lists the console screens and the minimum role each one needs.
var Routes = map[string]models.Role{
	"/auth/apikeys":          models.RoleAdmin,
	"/auth/change_password":  models.RoleAdmin,
	"/configuration/brains":  models.RoleAdmin,
	"/configuration/sensors": models.RoleAdmin,
	"/brains/prediction":     models.RoleUser,
	"/brains/training":       models.RoleTrainer,
}

// Navigate checks a console screen. Unknown screens need no role.
func (g *Guard) Navigate(route string) Decision {
	minimum, ok := Routes[route]
	if !ok {
		return Decision{Allowed: true}
	}
	return g.Check(minimum)
}
