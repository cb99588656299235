// Package textutil sanitizes titles into names that are safe as file and
// directory names on every filesystem a media library is likely to live on.
package textutil
