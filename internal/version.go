package internal

// Version is the worldly release version
const Version = "0.1.0"
