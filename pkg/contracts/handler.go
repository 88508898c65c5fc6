package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every domain handler mounted on the back-office router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
