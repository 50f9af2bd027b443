// @title           Bolsa FEUCN API
// @version         1.0
// @description     Бэкенд студенческой биржи: публикации с модерацией, отклики, взаимные отзывы.
// @contact.name    FEUCN
// @contact.email   soporte@bolsafeucn.cl
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	_ "bolsafeucn/docs"
	"bolsafeucn/internal/app"
)

func main() {
	app.Run()
}
