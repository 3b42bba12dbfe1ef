package jobs

import "github.com/labstack/echo/v4"

type Handlers interface {
	Prepare() echo.HandlerFunc
	Convert() echo.HandlerFunc
	Status() echo.HandlerFunc
	Download() echo.HandlerFunc
	Sweep() echo.HandlerFunc
}
