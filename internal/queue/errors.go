package queue

import "errors"

// ErrMessageTooLarge is returned by a publisher when an item batch does not
// fit in one queue message.
var ErrMessageTooLarge = errors.New("item batch exceeds the queue message size limit")
