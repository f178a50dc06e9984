// Package checkoutbookcopy implements the Checkout Book Copy command use case.
package checkoutbookcopy
