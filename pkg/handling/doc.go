// Package handling defines request handlers and the decoration pipeline that
// assembles them into a server's request-processing chain.
//
// # Handlers and Decorators
//
// A Handler processes one request through a *Context. A Decorator receives
// the launch configuration and the next handler and returns a handler that
// wraps it:
//
//	timing := func(cfg *config.LaunchConfig, next handling.Handler) (handling.Handler, error) {
//		return handling.HandlerFunc(func(c *handling.Context) error {
//			start := time.Now()
//			err := next.Handle(c)
//			record(time.Since(start), err)
//			return err
//		}), nil
//	}
//
// # Ordering
//
// Decorators registered in a Pipeline as A, B, C produce the chain
// A(B(C(app))): a request enters A first and the response leaves A last.
// Infrastructure decorators such as request timing are therefore registered
// before application ones so that they observe the whole request.
//
// # Blocking Work
//
// Handlers must not block their worker slot on slow I/O. Blocking hands the
// work to the background executor and waits for it without holding a slot:
//
//	data, err := handling.Blocking(c, func(ctx context.Context) ([]byte, error) {
//		return os.ReadFile(path)
//	})
package handling
