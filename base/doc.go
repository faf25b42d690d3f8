/*

Package base provides base data structures and functions for stratify.

The base data structures and functions include:

* Random Generator

* Rounding Policy

*/
package base
