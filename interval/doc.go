/*Package interval implements interval-union operations on genomic
  coordinates, as read from BED files or region strings.
  Overlapping and touching intervals are merged, not tracked separately.
  Every position must fit in a PosType (int32).
*/
package interval
