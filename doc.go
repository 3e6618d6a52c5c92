/*
go-trayseg turns the instance segmentation of a daily tray photo into
calibrated single plant images ready for a spray/no-spray classifier.

For each photo the Pipeline

  - splits the model detections into plants and the reference panel
  - isolates the reference panel and computes its per channel response
  - assigns every plant mask to the nearest of the six tray stations
  - cuts each plant out onto a fixed 780x780 black canvas
  - corrects its color channels to reflectance using the panel statistics

Results are grouped by station label, "plant 1" to "plant 6".

The segmentation and classification models, blob storage and the field
device are reached through the remote, storage and device packages.  The job
package ties a full daily cycle together and cmd/trayseg provides the CLI.
*/
package trayseg
