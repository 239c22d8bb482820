// README: Fare value helpers shared by the reveal animator, session views and quotes.
package types

import "fmt"

// Fare is a predicted fare in US dollars as returned by the prediction endpoint.
type Fare float64

// Display renders the fare the way the fare box shows it, e.g. "$12.30".
func (f Fare) Display() string {
	return fmt.Sprintf("$%.2f", float64(f))
}
