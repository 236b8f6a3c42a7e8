// Package pathutils resolves user supplied paths relative to the home directory and a base directory.
package pathutils
