/*
   Built-in StageRunner implementations.
*/
package runners

func emitError(err error, errCh chan<- error) {
	select {
	case errCh <- err:
	default: // error channel is full
	}
}
